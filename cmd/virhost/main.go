// Copyright © 2025 J. Salvador Arias <jsalarias@gmail.com>
// All rights reserved.
// Distributed under BSD2 license that can be found in the LICENSE file.

// VirHost is a tool to summarize the host taxa
// of deposited virus sequences.
package main

import (
	"github.com/js-arias/command"
	"github.com/js-arias/virhost/cmd/virhost/enrich"
	"github.com/js-arias/virhost/cmd/virhost/exclude"
	"github.com/js-arias/virhost/cmd/virhost/match"
	"github.com/js-arias/virhost/cmd/virhost/mirror"
	"github.com/js-arias/virhost/cmd/virhost/rank"
)

var app = &command.Command{
	Usage: "virhost <command> [<argument>...]",
	Short: "a tool to summarize the host taxa of virus sequences",
}

func init() {
	app.Add(enrich.Command)
	app.Add(exclude.Command)
	app.Add(match.Command)
	app.Add(mirror.Command)
	app.Add(rank.Command)
}

func main() {
	app.Main()
}
