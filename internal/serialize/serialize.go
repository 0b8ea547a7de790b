package serialize

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

func MarshalJSON(data any) ([]byte, error) {
	return json.Marshal(data)
}

func UnMarshalJSON(data []byte, dest any) error {
	return json.Unmarshal(data, dest)
}

func MarshalYAML(data any) ([]byte, error) {
	return yaml.Marshal(data)
}

func UnMarshalYAML(data []byte, dest any) error {
	return yaml.Unmarshal(data, dest)
}
