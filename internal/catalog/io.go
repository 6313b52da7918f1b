package catalog

import (
	"encoding/json"
	"os"
)

func readFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

func jsonMarshal(v any) ([]byte, error) {
	return json.Marshal(v)
}
