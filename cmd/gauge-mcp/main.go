package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/gauge-tools-mcp/internal/config"
	"github.com/ironsheep/gauge-tools-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("gauge-tools-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "batch":
			setupLogging()
			err := runBatch(os.Args[2:], os.Stdout)
			if errors.Is(err, flag.ErrHelp) {
				return
			}
			if err != nil {
				log.Fatalf("Batch error: %v", err)
			}
			return
		}
	}

	setupLogging()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	if cfg.Debug {
		log.Printf("Gauge MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	srv, err := server.New(cfg)
	if err != nil {
		log.Fatalf("Server error: %v", err)
	}
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// setupLogging sends logs to stderr; stdout is for the MCP protocol.
func setupLogging() {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
}

func printHelp() {
	fmt.Println("gauge-tools-mcp - read speed from analogue gauge footage")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  gauge-tools-mcp [options]          Run the MCP server on stdin/stdout")
	fmt.Println("  gauge-tools-mcp batch [flags]      Process a directory of frames")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Batch flags (see 'gauge-tools-mcp batch -h'):")
	fmt.Println("  -frames DIR -csv FILE [-plot FILE] [-html FILE] [-db FILE] [-annotate DIR]")
	fmt.Println()
	fmt.Println("Environment variables (also read from a .env file):")
	fmt.Printf("  %s=debug        Enable debug logging\n", config.EnvLogLevel)
	fmt.Printf("  %s=x,y,w,h         Gauge region, or 'full'\n", config.EnvRegion)
	fmt.Printf("  %s, %s\n", config.EnvMinPerimeter, config.EnvMaxPerimeter)
	fmt.Printf("  %s, %s, %s, %s\n", config.EnvScale, config.EnvOffset, config.EnvWrap, config.EnvResetAbove)
	fmt.Printf("  %s, %s, %s\n", config.EnvMargin, config.EnvFPS, config.EnvHighlight)
	fmt.Println()
	fmt.Println("The server communicates via MCP protocol over stdin/stdout.")
	fmt.Println("Configure it as a stdio server in your MCP client.")
}
