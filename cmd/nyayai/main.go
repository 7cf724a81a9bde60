package main

func main() {
	SetupServeCmd()
	SetupProbeCmd()
	SetupSectionsCmd()
	SetupAskCmd()
	Execute()
}
