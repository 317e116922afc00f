package main

import "nathanbeddoewebdev/oshost/cmd"

func main() {
	cmd.Execute()
}
