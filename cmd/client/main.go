package main

import (
	"github.com/MKhiriev/go-record-sync/cmd/client/cmd"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	cmd.SetBuildInfo(buildVersion, buildDate, buildCommit)
	cmd.Execute()
}
