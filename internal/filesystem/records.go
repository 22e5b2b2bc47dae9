package filesystem

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	recordPermissionsConstant        = 0o644
	encodeJSONErrorTemplateConstant  = "encode %s: %w"
	decodeJSONErrorTemplateConstant  = "decode %s: %w"
	encodeYAMLErrorTemplateConstant  = "encode %s: %w"
	decodeYAMLErrorTemplateConstant  = "decode %s: %w"
	readRecordErrorTemplateConstant  = "read %s: %w"
	writeRecordErrorTemplateConstant = "write %s: %w"
	jsonIndentPrefixConstant         = ""
	jsonIndentValueConstant          = "  "
)

// ReadJSON decodes the JSON record stored at path into target.
func ReadJSON(fileSystem FileSystem, path string, target any) error {
	content, readError := fileSystem.ReadFile(path)
	if readError != nil {
		return fmt.Errorf(readRecordErrorTemplateConstant, path, readError)
	}
	if decodeError := json.Unmarshal(content, target); decodeError != nil {
		return fmt.Errorf(decodeJSONErrorTemplateConstant, path, decodeError)
	}
	return nil
}

// WriteJSON atomically replaces the record at path with the JSON form of value.
func WriteJSON(fileSystem FileSystem, path string, value any) error {
	content, encodeError := json.MarshalIndent(value, jsonIndentPrefixConstant, jsonIndentValueConstant)
	if encodeError != nil {
		return fmt.Errorf(encodeJSONErrorTemplateConstant, path, encodeError)
	}
	if writeError := fileSystem.WriteFile(path, content, recordPermissionsConstant); writeError != nil {
		return fmt.Errorf(writeRecordErrorTemplateConstant, path, writeError)
	}
	return nil
}

// ReadYAML decodes the YAML record stored at path into target.
func ReadYAML(fileSystem FileSystem, path string, target any) error {
	content, readError := fileSystem.ReadFile(path)
	if readError != nil {
		return fmt.Errorf(readRecordErrorTemplateConstant, path, readError)
	}
	if decodeError := yaml.Unmarshal(content, target); decodeError != nil {
		return fmt.Errorf(decodeYAMLErrorTemplateConstant, path, decodeError)
	}
	return nil
}

// WriteYAML atomically replaces the record at path with the YAML form of value.
func WriteYAML(fileSystem FileSystem, path string, value any) error {
	content, encodeError := yaml.Marshal(value)
	if encodeError != nil {
		return fmt.Errorf(encodeYAMLErrorTemplateConstant, path, encodeError)
	}
	if writeError := fileSystem.WriteFile(path, content, recordPermissionsConstant); writeError != nil {
		return fmt.Errorf(writeRecordErrorTemplateConstant, path, writeError)
	}
	return nil
}
