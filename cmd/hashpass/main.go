// Command hashpass prints a bcrypt hash for seeding the usuarios table.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/iliyamo/nfc-tracker/internal/utils"
)

func main() {
	password := flag.String("password", "", "plain text password to hash")
	cost := flag.Int("cost", 10, "bcrypt cost")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "usage: hashpass -password <secret> [-cost N]")
		os.Exit(2)
	}
	hash, err := utils.HashPassword(*password, *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpass:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
