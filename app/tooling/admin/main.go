// This program performs administrative tasks for the deriver service.
package main

import "github.com/taikoxyz/taiko-mono/app/tooling/admin/cmd"

func main() {
	cmd.Execute()
}
