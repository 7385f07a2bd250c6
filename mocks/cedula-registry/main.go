// Command cedula-registry is a standalone mock of the national registry API
// for local development. Point CEDULA_API_BASE_URL at it to exercise flows
// without real credentials.
//
// Behavior by cédula number:
//
//	00000000  -> not found
//	00000429  -> rate limited
//	00000500  -> malformed response (missing names)
//	anything else -> found, deterministic names derived from the number
package main

import (
	"encoding/json"
	"flag"
	"log"
	"net/http"
)

type person struct {
	FirstName string `json:"primer_nombre"`
	LastName  string `json:"primer_apellido"`
}

type response struct {
	Error string  `json:"error,omitempty"`
	Data  *person `json:"data,omitempty"`
}

var names = []person{
	{"JUAN", "PEREZ"},
	{"MARIA", "GONZALEZ"},
	{"PEDRO", "RODRIGUEZ"},
	{"ANA", "MARTINEZ"},
	{"LUIS", "HERNANDEZ"},
}

func handle(w http.ResponseWriter, r *http.Request) {
	cedula := r.URL.Query().Get("cedula")
	w.Header().Set("Content-Type", "application/json")

	var resp response
	switch cedula {
	case "00000000":
		resp.Error = "no se encontró la cédula"
	case "00000429":
		resp.Error = "rate limit exceeded"
	case "00000500":
		resp.Data = &person{}
	default:
		var sum int
		for _, c := range cedula {
			sum += int(c)
		}
		p := names[sum%len(names)]
		resp.Data = &p
	}

	log.Printf("GET %s cedula=%s error=%q", r.URL.Path, cedula, resp.Error)
	_ = json.NewEncoder(w).Encode(resp)
}

func main() {
	addr := flag.String("addr", ":9090", "listen address")
	flag.Parse()

	http.HandleFunc("/api/v1", handle)
	log.Printf("mock cédula registry listening on %s", *addr)
	log.Fatal(http.ListenAndServe(*addr, nil))
}
