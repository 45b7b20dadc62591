package main

import "lumigente/internal/app/server"

func main() {
	server.Run()
}
