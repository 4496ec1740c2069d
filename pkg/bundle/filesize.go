// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package bundle

import (
	"math"

	"github.com/dustin/go-humanize"
)

var sizeSymbols = []string{"B", "KB", "MB", "GB", "TB", "PB", "EB", "ZB", "YB"}

type SizeOptions struct {
	// Base is 2 (1024 per unit) or 10 (1000 per unit)
	Base   int
	Round  int
	Spacer string
}

var DefaultSizeOptions = SizeOptions{
	Base:   2,
	Round:  2,
	Spacer: " ",
}

// FormatSize returns a human readable size such as "5.42 KB" using DefaultSizeOptions.
func FormatSize(size int64) string {
	return FormatSizeWith(size, DefaultSizeOptions)
}

func FormatSizeWith(size int64, opts SizeOptions) string {
	step := 1024.0
	if opts.Base == 10 {
		step = 1000.0
	}
	if opts.Round < 0 {
		opts.Round = 0
	}

	sign := ""
	val := float64(size)
	if val < 0 {
		sign = "-"
		val = -val
	}

	exp := 0
	if val > 0 {
		exp = int(math.Floor(math.Log(val) / math.Log(step)))
		exp = min(max(exp, 0), len(sizeSymbols)-1)
	}

	scaled := val / math.Pow(step, float64(exp))
	rounded := roundTo(scaled, opts.Round)
	if rounded >= step && exp < len(sizeSymbols)-1 {
		rounded = 1
		exp++
	}

	symbol := sizeSymbols[exp]
	if exp == 1 && opts.Base == 10 {
		symbol = "kB"
	}

	return sign + humanize.FtoaWithDigits(rounded, opts.Round) + opts.Spacer + symbol
}

func roundTo(val float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))

	return math.Round(val*pow) / pow
}
