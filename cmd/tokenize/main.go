// tokenize is a command-line tool for producing token artifacts from OCR
// engine output.
//
// It accepts either an hOCR file (Tesseract and compatible engines) or
// Google Document AI output, and writes the flattened per-page token sets as
// a canonical JSON token artifact ready for grouping. Document AI input can
// be a previously archived protojson dump or a live API call on a PDF.
//
// Configuration:
//
// Live Document AI calls require a YAML configuration file:
//
//	project_id: "your-gcp-project-id"
//	location: "us"
//	processor_id: "your-processor-id"
//
// Usage:
//
//	tokenize -doc-id doc1 -out ocr/doc1.ocr.json [input flags]
//
// Required flags:
//
//	-doc-id string  Document identifier recorded in the artifact
//	-out string     Path to save the token artifact
//
// Input options (exactly one required):
//
//	-hocr string        Path to an hOCR file
//	-docai-dump string  Path to an archived Document AI protojson dump
//	-pdf string         Path to a PDF to process with Document AI (needs -config)
//
// Document AI options:
//
//	-config string    Path to the Document AI YAML configuration
//	-dump-api string  Path to archive the raw API response as protojson
//
// Authentication for live calls uses the GOOGLE_APPLICATION_CREDENTIALS
// environment variable.
//
// Examples:
//
//	tokenize -doc-id scan42 -hocr scan42.hocr -out ocr/scan42.ocr.json
//	tokenize -doc-id scan42 -pdf scan42.pdf -config docai.yml -out ocr/scan42.ocr.json -dump-api dumps/scan42.docai.json
//	tokenize -doc-id scan42 -docai-dump dumps/scan42.docai.json -out ocr/scan42.ocr.json
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/sverrir/lineforge/pkg/docai"
	"github.com/sverrir/lineforge/pkg/hocr"
	"github.com/sverrir/lineforge/pkg/tokenio"
)

// loadDocAIConfig reads the Document AI processor settings from YAML.
func loadDocAIConfig(path string) (docai.Config, error) {
	var cfg docai.Config
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.ProjectID == "" || cfg.Location == "" || cfg.ProcessorID == "" {
		return cfg, fmt.Errorf("config must set project_id, location, and processor_id")
	}
	return cfg, nil
}

func main() {
	docID := flag.String("doc-id", "", "Document identifier recorded in the artifact (required)")
	outPath := flag.String("out", "", "Path to save the token artifact (required)")
	hocrPath := flag.String("hocr", "", "Path to an hOCR file")
	dumpPath := flag.String("docai-dump", "", "Path to an archived Document AI protojson dump")
	pdfPath := flag.String("pdf", "", "Path to a PDF to process with Document AI")
	configPath := flag.String("config", "", "Path to the Document AI YAML configuration")
	dumpAPIPath := flag.String("dump-api", "", "Path to archive the raw API response as protojson")
	verbose := flag.Bool("v", false, "Verbose logging")
	flag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if *docID == "" || *outPath == "" {
		fmt.Fprintln(os.Stderr, "Error: -doc-id and -out flags are required")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	inputs := 0
	for _, v := range []string{*hocrPath, *dumpPath, *pdfPath} {
		if v != "" {
			inputs++
		}
	}
	if inputs != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one of -hocr, -docai-dump, or -pdf must be provided")
		fmt.Fprintln(os.Stderr, "Usage:")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var artifact tokenio.Artifact
	switch {
	case *hocrPath != "":
		data, err := os.ReadFile(*hocrPath)
		if err != nil {
			log.Fatalf("Failed to read hOCR file: %v", err)
		}
		artifact, err = hocr.ParseTokens(data, *docID)
		if err != nil {
			log.Fatalf("Failed to parse hOCR: %v", err)
		}

	case *dumpPath != "":
		doc, err := docai.LoadProtoJSON(*dumpPath)
		if err != nil {
			log.Fatalf("Failed to load Document AI dump: %v", err)
		}
		artifact = docai.TokensFromProto(doc, *docID)

	default:
		if *configPath == "" {
			fmt.Fprintln(os.Stderr, "Error: -pdf requires -config")
			os.Exit(1)
		}
		cfg, err := loadDocAIConfig(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		pdfBytes, err := os.ReadFile(*pdfPath)
		if err != nil {
			log.Fatalf("Failed to read PDF file: %v", err)
		}
		doc, err := docai.ProcessDocument(context.Background(), pdfBytes, cfg)
		if err != nil {
			log.Fatalf("Document AI processing failed: %v", err)
		}
		if *dumpAPIPath != "" {
			if err := docai.DumpProtoJSON(*dumpAPIPath, doc); err != nil {
				log.Fatalf("Failed to archive API response: %v", err)
			}
			log.WithField("path", *dumpAPIPath).Info("API response archived")
		}
		artifact = docai.TokensFromProto(doc, *docID)
	}

	total := 0
	for _, page := range artifact.Pages {
		total += len(page.Tokens)
	}
	log.WithFields(logrus.Fields{
		"doc_id": *docID,
		"pages":  len(artifact.Pages),
		"tokens": total,
	}).Info("token artifact built")

	if err := tokenio.WriteFile(*outPath, artifact); err != nil {
		log.Fatalf("Failed to write token artifact: %v", err)
	}
	log.WithField("path", *outPath).Info("token artifact saved")
}
