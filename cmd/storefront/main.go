package main

import "github.com/unikraft-shop/storefront/cmd/storefront/cmd"

func main() {
	cmd.Execute()
}
