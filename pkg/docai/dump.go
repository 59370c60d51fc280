package docai

import (
	"fmt"
	"os"
	"path/filepath"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"google.golang.org/protobuf/encoding/protojson"
)

// DumpProtoJSON writes a Document AI response to disk as protojson so a raw
// API response can be archived next to the artifacts derived from it and
// replayed later without another API call.
func DumpProtoJSON(path string, doc *documentaipb.Document) error {
	data, err := protojson.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshaling Document proto: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadProtoJSON reads a protojson Document dump written by DumpProtoJSON.
func LoadProtoJSON(path string) (*documentaipb.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc documentaipb.Document
	if err := protojson.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshaling Document proto: %w", err)
	}
	return &doc, nil
}

// ExtractPageImage pulls the rendered page image out of a Document AI page,
// when the processor was configured to return one.
func ExtractPageImage(page *documentaipb.Document_Page) ([]byte, error) {
	if page == nil {
		return nil, fmt.Errorf("no page provided")
	}
	image := page.GetImage()
	if image == nil {
		return nil, fmt.Errorf("no image found in page")
	}
	content := image.GetContent()
	if len(content) == 0 {
		return nil, fmt.Errorf("image content is empty")
	}
	return content, nil
}
