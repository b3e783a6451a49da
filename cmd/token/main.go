// Command token prints a bearer token for the record API. It reads the same
// configuration as the server, so -s and -t set the secret and lifetime:
//
//	token -sub operator -t 60
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/gophvault/internal/flagx"
	"github.com/dmitrijs2005/gophvault/internal/server"
	"github.com/dmitrijs2005/gophvault/internal/server/config"
)

func main() {
	fs := flag.NewFlagSet("token", flag.ExitOnError)
	subject := fs.String("sub", "operator", "token subject")
	_ = fs.Parse(flagx.FilterArgs(os.Args[1:], []string{"-sub"}))

	cfg := config.LoadConfig()

	tok, err := server.MintToken(cfg, *subject)
	if err != nil {
		log.Fatalf("%v", err)
	}
	fmt.Println(tok)
}
