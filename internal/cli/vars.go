// Copyright (c) 2022. Alvin Baena.
// SPDX-License-Identifier: MIT

package cli

var (
	// root
	verbose bool
	// root
	profile bool
	// root
	pprofPort uint16
	// password
	interactive bool
	// password
	hashed bool
	// account
	threads int
	// account
	rps int
	// latest
	limit int
)
