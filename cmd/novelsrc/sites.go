package main

import "fmt"

// Run executes the sites command.
func (c *SitesCmd) Run(deps *Dependencies) error {
	names := deps.Registry.List()
	if deps.JSON {
		return writeJSON(deps.Stdout, names)
	}
	for _, name := range names {
		fmt.Fprintln(deps.Stdout, name)
	}
	return nil
}
