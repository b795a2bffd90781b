// Command sheetsense is a natural-language front end for spreadsheets.
package main

import "github.com/klytics/sheetsense/cmd"

func main() {
	cmd.Execute()
}
