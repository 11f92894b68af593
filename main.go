package main

import (
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/hauke96/sigolo/v2"
	"github.com/joho/godotenv"

	"roadsnap/geo"
	"roadsnap/importing"
	"roadsnap/index"
	ownIo "roadsnap/io"
	"roadsnap/storage"
	"roadsnap/web"
)

const VERSION = "v0.1.0"

var cli struct {
	Logging string      `help:"Logging verbosity." enum:"info,debug,trace" short:"l" default:"info"`
	Version VersionFlag `help:"Print version information and quit" name:"version" short:"v"`
	Import  struct {
		Input string `help:"The input file. Either .osm or .osm.pbf." placeholder:"<input-file>" arg:"" type:"existingfile"`
	} `cmd:"" help:"Imports the given OSM file and builds the road index from it."`
	Serve struct {
	} `cmd:"" help:"Serves the nearest-road API over HTTP."`
	Locate struct {
		Lat     float64 `help:"Latitude of the query point in degrees." arg:""`
		Lon     float64 `help:"Longitude of the query point in degrees." arg:""`
		Zoom    int     `help:"Zoom level of the map view." default:"18"`
		Results int     `help:"Number of snap candidates to return." short:"k" default:"1"`
	} `cmd:"" help:"Snaps the given coordinate onto the nearest road segments."`
}

var indexBaseFolder = "roadsnap-index"

type VersionFlag string

func (v VersionFlag) Decode(ctx *kong.DecodeContext) error { return nil }
func (v VersionFlag) IsBool() bool                         { return true }
func (v VersionFlag) BeforeApply(app *kong.Kong, vars kong.Vars) error {
	fmt.Println(vars["version"])
	app.Exit(0)
	return nil
}

func main() {
	ctx := kong.Parse(
		&cli,
		kong.Name("roadsnap"),
		kong.Description("A tool to find and snap onto the road segments nearest to a coordinate."),
		kong.Vars{
			"version": VERSION,
		},
	)

	if strings.ToLower(cli.Logging) == "debug" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_DEBUG)
	} else if strings.ToLower(cli.Logging) == "trace" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_TRACE)
	} else if strings.ToLower(cli.Logging) == "info" {
		sigolo.SetDefaultLogLevel(sigolo.LOG_INFO)
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
	} else {
		sigolo.SetDefaultFormatFunctionAll(sigolo.LogPlain)
		sigolo.Fatalf("Unknown logging level '%s'", cli.Logging)
	}

	switch ctx.Command() {
	case "import <input>":
		err := importing.Import(cli.Import.Input, indexBaseFolder)
		sigolo.FatalCheck(err)
	case "serve":
		// A .env file can override the listen port, e.g. on shared hosts.
		err := godotenv.Load()
		if err != nil && !os.IsNotExist(err) {
			sigolo.Warnf("Unable to load .env file: %v", err)
		}

		port := os.Getenv("ROADSNAP_PORT")
		if port == "" {
			port = "8080"
		}

		web.StartServer(port, indexBaseFolder)
	case "locate <lat> <lon>":
		if cli.Locate.Results < 1 {
			sigolo.Fatalf("Invalid number of results %d, must be at least 1", cli.Locate.Results)
		}

		coordinates, err := storage.LoadCoordinates(indexBaseFolder)
		sigolo.FatalCheck(err)

		names, err := storage.LoadNameIndex(indexBaseFolder)
		sigolo.FatalCheck(err)

		searchTree, err := index.Open(
			path.Join(indexBaseFolder, index.TreeNodesFilename),
			path.Join(indexBaseFolder, index.LeafNodesFilename),
			coordinates,
		)
		sigolo.FatalCheck(err)

		query := geo.NewCoordinate(cli.Locate.Lat, cli.Locate.Lon)
		phantomNodes := searchTree.FindPhantomNodesWithDistance(query, cli.Locate.Zoom, cli.Locate.Results, index.DefaultMaxCheckedSegments)
		if len(phantomNodes) == 0 {
			sigolo.Fatalf("No road segment found near %v", query)
		}

		err = ownIo.WritePhantomNodesAsGeoJson(phantomNodes, names, os.Stdout)
		sigolo.FatalCheck(err)
	default:
		sigolo.Errorf("Unknown command '%s'", ctx.Command())
	}
}
