package web

import (
	"encoding/json"
	"net/http"
	"path"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/hauke96/sigolo/v2"

	"roadsnap/geo"
	"roadsnap/index"
	ownIo "roadsnap/io"
	"roadsnap/storage"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) ErrorResponse {
	return ErrorResponse{
		Error: message,
	}
}

// StartServer loads the serving artifacts from the given base folder and
// serves the nearest and snap endpoints until the process ends.
func StartServer(port string, indexBaseFolder string) {
	r := initRouter(indexBaseFolder)
	sigolo.Infof("Start server on port %s", port)
	err := http.ListenAndServe(":"+port, r)
	sigolo.FatalCheck(err)
}

func initRouter(indexBaseFolder string) *mux.Router {
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

	r := mux.NewRouter()

	r.HandleFunc("/v1/nearest", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		writer.Header().Set("Content-Type", "application/json")

		query, zoomLevel, _, ok := parseQueryParameters(writer, request)
		if !ok {
			return
		}

		result, found := searchTree.LocateClosestEndpoint(query, zoomLevel)
		if !found {
			writeErrorResponse(writer, http.StatusNotFound, "No endpoint found")
			return
		}

		err := ownIo.WriteCoordinateAsGeoJson(result, writer)
		if err != nil {
			sigolo.Errorf("Error writing query result: %+v", err)
			writeErrorResponse(writer, http.StatusInternalServerError, "Error writing query result")
		}
	}).Methods(http.MethodGet)

	r.HandleFunc("/v1/snap", func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Access-Control-Allow-Origin", "*")
		writer.Header().Set("Content-Type", "application/json")

		query, zoomLevel, numberOfResults, ok := parseQueryParameters(writer, request)
		if !ok {
			return
		}

		phantomNodes := searchTree.FindPhantomNodesWithDistance(query, zoomLevel, numberOfResults, index.DefaultMaxCheckedSegments)
		if len(phantomNodes) == 0 {
			writeErrorResponse(writer, http.StatusNotFound, "No road segment found")
			return
		}

		err := ownIo.WritePhantomNodesAsGeoJson(phantomNodes, names, writer)
		if err != nil {
			sigolo.Errorf("Error writing query result: %+v", err)
			writeErrorResponse(writer, http.StatusInternalServerError, "Error writing query result")
		}
	}).Methods(http.MethodGet)

	return r
}

// parseQueryParameters reads lat, lon, zoom and k from the request. The
// boolean is false when a parameter was invalid; an error response has
// been written in that case.
func parseQueryParameters(writer http.ResponseWriter, request *http.Request) (geo.Coordinate, int, int, bool) {
	parameters := request.URL.Query()

	lat, err := strconv.ParseFloat(parameters.Get("lat"), 64)
	if err != nil {
		writeErrorResponse(writer, http.StatusBadRequest, "Invalid or missing 'lat' parameter")
		return geo.Coordinate{}, 0, 0, false
	}

	lon, err := strconv.ParseFloat(parameters.Get("lon"), 64)
	if err != nil {
		writeErrorResponse(writer, http.StatusBadRequest, "Invalid or missing 'lon' parameter")
		return geo.Coordinate{}, 0, 0, false
	}

	zoomLevel := 18
	if zoomParameter := parameters.Get("zoom"); zoomParameter != "" {
		zoomLevel, err = strconv.Atoi(zoomParameter)
		if err != nil {
			writeErrorResponse(writer, http.StatusBadRequest, "Invalid 'zoom' parameter")
			return geo.Coordinate{}, 0, 0, false
		}
	}

	numberOfResults := 1
	if kParameter := parameters.Get("k"); kParameter != "" {
		numberOfResults, err = strconv.Atoi(kParameter)
		if err != nil || numberOfResults < 1 {
			writeErrorResponse(writer, http.StatusBadRequest, "Invalid 'k' parameter")
			return geo.Coordinate{}, 0, 0, false
		}
	}

	return geo.NewCoordinate(lat, lon), zoomLevel, numberOfResults, true
}

func writeErrorResponse(writer http.ResponseWriter, statusCode int, message string) {
	writer.WriteHeader(statusCode)

	errorResponseBytes, err := json.Marshal(NewErrorResponse(message))
	if err != nil {
		sigolo.Errorf("Error creating and marshalling error response object: %+v", err)
		return
	}

	_, err = writer.Write(errorResponseBytes)
	if err != nil {
		sigolo.Errorf("Error writing error response: %+v", err)
	}
}
