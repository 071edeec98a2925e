package yaml

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// MergeFiles reads basePath and, when it exists and is not empty, overlayPath,
// and returns the overlay deep-merged over the base. A missing overlay is not
// an error.
func MergeFiles(basePath, overlayPath string) (map[string]interface{}, error) {
	base, err := readMap(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load base file: %w", err)
	}

	if overlayPath == "" {
		return base, nil
	}
	info, err := os.Stat(overlayPath)
	if err != nil {
		if os.IsNotExist(err) {
			return base, nil
		}
		return nil, fmt.Errorf("failed to stat overlay file: %w", err)
	}
	if info.Size() == 0 {
		return base, nil
	}

	overlay, err := readMap(overlayPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load overlay file: %w", err)
	}
	return MergeMaps(base, overlay), nil
}

func readMap(path string) (map[string]interface{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return NormalizeMap(m), nil
}

// MergeMaps merges src into dst recursively. Values from src win; nested maps
// are merged key by key and any other value, lists included, is replaced.
func MergeMaps(dst, src map[string]interface{}) map[string]interface{} {
	result := NormalizeMap(dst)
	for key, srcVal := range NormalizeMap(src) {
		dstMap, dstIsMap := result[key].(map[string]interface{})
		srcMap, srcIsMap := srcVal.(map[string]interface{})
		if dstIsMap && srcIsMap {
			result[key] = MergeMaps(dstMap, srcMap)
			continue
		}
		result[key] = srcVal
	}
	return result
}

// NormalizeMap returns a copy of m in which every nested map is keyed by
// string, as yaml.v2 decodes nested maps as map[interface{}]interface{}.
func NormalizeMap(m map[string]interface{}) map[string]interface{} {
	result := make(map[string]interface{}, len(m))
	for k, v := range m {
		result[k] = NormalizeValue(v)
	}
	return result
}

// NormalizeValue applies NormalizeMap to v and to every map nested within it.
func NormalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case map[interface{}]interface{}:
		result := make(map[string]interface{}, len(val))
		for k, item := range val {
			result[fmt.Sprint(k)] = NormalizeValue(item)
		}
		return result
	case map[string]interface{}:
		return NormalizeMap(val)
	case []interface{}:
		result := make([]interface{}, len(val))
		for i, item := range val {
			result[i] = NormalizeValue(item)
		}
		return result
	default:
		return v
	}
}

// Decode re-encodes a merged document and decodes it into target, so that
// struct tags and custom unmarshalers apply to the merged result.
func Decode(doc map[string]interface{}, target interface{}) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode merged document: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, target); err != nil {
		return fmt.Errorf("failed to decode merged document: %w", err)
	}
	return nil
}
