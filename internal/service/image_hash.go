package service

import "fmt"

// The adimages upload response is not stable across Graph API versions:
// the hash can appear under images.<filename>.hash or as a top-level hash
// field. Extraction is an ordered list of strategies so the provider's
// inconsistency is an explicit contract rather than incidental code.

type hashStrategy func(resp map[string]interface{}) (string, bool)

var imageHashStrategies = []hashStrategy{
	hashFromImagesMap,
	hashFromTopLevel,
}

// hashFromImagesMap reads images.<any>.hash, preferring whichever entry
// appears; the upload sends a single image so the map has one key.
func hashFromImagesMap(resp map[string]interface{}) (string, bool) {
	images, ok := resp["images"].(map[string]interface{})
	if !ok {
		return "", false
	}
	for _, v := range images {
		entry, ok := v.(map[string]interface{})
		if !ok {
			continue
		}
		if hash, ok := entry["hash"].(string); ok && hash != "" {
			return hash, true
		}
	}
	return "", false
}

// hashFromTopLevel reads a bare top-level hash field
func hashFromTopLevel(resp map[string]interface{}) (string, bool) {
	hash, ok := resp["hash"].(string)
	return hash, ok && hash != ""
}

// extractImageHash tries each strategy in order
func extractImageHash(resp map[string]interface{}) (string, error) {
	for _, strategy := range imageHashStrategies {
		if hash, ok := strategy(resp); ok {
			return hash, nil
		}
	}
	return "", fmt.Errorf("upload image: no image hash in response")
}
