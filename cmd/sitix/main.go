// Command sitix renders a directory tree of Sitix templates into a
// static output directory, optionally watching for changes or
// mounting the result for local preview.
package main

import "github.com/sitix-run/sitix/cmd"

func main() {
	cmd.Execute()
}
