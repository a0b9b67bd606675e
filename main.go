package main

import "github.com/PremSagarPadhy/REASTURANT-POS-sub001/server"

func main() {
	s := server.NewServer()
	s.Start(s.Config.Server.Addr)
}
