// Command preview builds the NTAK order report for a JSON order request and
// prints the payload that would be submitted. It never contacts NTAK.
package main

import (
	"encoding/json"
	"flag"
	"io"
	"os"

	validator "github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ntak-rms/internal/catalog"
	"github.com/noah-isme/ntak-rms/internal/order"
)

func main() {
	file := flag.String("file", "-", "order request JSON, - for stdin")
	deposit := flag.Int64("deposit", 50, "deposit unit price in HUF")
	depositVAT := flag.String("deposit-vat", string(catalog.VAT0), "deposit VAT code")
	summary := flag.Bool("summary", false, "print the totals summary instead of the payload")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	in := io.Reader(os.Stdin)
	if *file != "-" {
		f, err := os.Open(*file)
		if err != nil {
			logger.Fatal().Err(err).Str("file", *file).Msg("open request")
		}
		defer f.Close()
		in = f
	}

	var req order.Request
	dec := json.NewDecoder(in)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		logger.Fatal().Err(err).Msg("decode request")
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(req); err != nil {
		logger.Fatal().Err(err).Msg("invalid request")
	}
	o, err := req.Order()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid order")
	}

	report := order.Builder{DepositUnitPrice: *deposit, DepositVAT: catalog.VAT(*depositVAT)}.Build(o)
	var out any = report.Payload()
	if *summary {
		out = order.SummaryOf(report)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Fatal().Err(err).Msg("encode payload")
	}
}
