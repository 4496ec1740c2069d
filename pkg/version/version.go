// Copyright 2024 Hedgehog
// SPDX-License-Identifier: Apache-2.0

package version

var Version = "(devel)"
