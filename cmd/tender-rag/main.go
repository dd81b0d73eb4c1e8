package main

// @title           tender-rag API
// @version         1.0
// @description     Question answering over PDF, Word and Excel tender documents. Upload documents, then ask questions answered from the indexed passages with cited sources.

// @host      localhost:8000
// @BasePath  /api/v1
// @schemes   http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token. Format: "Bearer {token}"

import (
	"os"

	"github.com/custodia-labs/tender-rag/internal/adapters/driving/cli"
)

var version = "dev"

func main() {
	if err := cli.Execute(version); err != nil {
		os.Exit(1)
	}
}
