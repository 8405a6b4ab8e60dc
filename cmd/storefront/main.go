// storefront is the unified CLI for the storefront backend.
//
// # Commands
//
//	storefront serve      Run the HTTP API (add --local for an embedded store)
//	storefront worker     Run the queue workers (audit trail + email)
//	storefront provision  Apply the stack declaration against AWS
//
// # Quick Start
//
// Run everything locally against an embedded store, no AWS needed:
//
//	storefront serve --local
//
// Provision the real stack, then run the API and the workers:
//
//	storefront provision
//	storefront serve
//	storefront worker
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	// Remove the subcommand from args so flag parsing works
	os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

	var err error
	switch cmd {
	case "serve":
		err = runServe()
	case "worker":
		err = runWorker()
	case "provision":
		err = runProvision()
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("storefront version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "storefront: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "storefront %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`storefront - serverless e-commerce backend

Usage:
  storefront <command> [flags]

Commands:
  serve      Run the HTTP API
  worker     Run the queue workers (audit trail + email notification)
  provision  Apply the stack declaration against AWS

Examples:
  # Local development, embedded store, in-process bus:
  storefront serve --local

  # Against AWS (EVENTS_TOPIC_ARN etc. from the environment):
  storefront provision
  storefront serve
  storefront worker

Configuration comes from the environment (AWS_REGION, STACK_PATH,
EVENTS_TOPIC_ARN, AUDIT_QUEUE_URL, NOTIFY_QUEUE_URL, RESEND_API_KEY, ...).

Run 'storefront <command> --help' for more information on a command.`)
}
