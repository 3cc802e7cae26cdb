package main

import (
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/backoffice-ingest/internal/domain/document"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/assembler"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/service"
	"github.com/FACorreiaa/backoffice-ingest/internal/domain/import/sniffer"
)

func (c *cli) newDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [file]",
		Short: "Detect the layout of pasted text and print the assembled disputes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			svc := service.NewImportService(nil, assembler.New(c.logger), nil, c.logger)
			preview := svc.Preview(text)
			if preview.Format == sniffer.FormatUnknown {
				return sniffer.ErrUnrecognizedFormat
			}
			return printJSON(cmd, preview)
		},
	}
}

type classifyOutput struct {
	Classification document.Classification `json:"classification"`
	Fields         document.Fields         `json:"fields"`
}

func (c *cli) newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [file]",
		Short: "Classify OCR text as a contract or receipt and extract its fields",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			cls := document.Classify(text)
			return printJSON(cmd, classifyOutput{
				Classification: cls,
				Fields:         document.Extract(text, cls.Type),
			})
		},
	}
}
