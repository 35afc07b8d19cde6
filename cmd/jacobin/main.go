/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-4 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Command jacobin is the CLI entry point (§6 Configuration): it parses
// flags into a globals.Config, wires up tracing, and hands off to the
// interpreter to run one class to completion.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"jacobin/globals"
	"jacobin/interpreter"
	"jacobin/trace"
)

var (
	heapSize        int
	jdkPath         []string
	logLevel        string
	printInRealTime bool
)

var rootCmd = &cobra.Command{
	Use:   "jacobin [flags] entry-class",
	Short: "Jacobin VM - a Java bytecode interpreter",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		trace.Init()
		trace.SetLevel(levelFromName(logLevel))

		cfg := globals.DefaultConfig()
		cfg.HeapSize = heapSize
		cfg.JdkPath = jdkPath
		cfg.LogJvmStatus = logLevel != "WARNING"
		cfg.PrintInRealTime = printInRealTime

		globals.InitGlobals("jacobin")

		vm := interpreter.New(&cfg)
		entryClass := args[0]
		if err := vm.StartExec(entryClass); err != nil {
			trace.Error(fmt.Sprintf("%s: %v", entryClass, err))
			return err
		}
		return nil
	},
}

// levelFromName maps the --log-level flag's value onto trace's level
// scheme, defaulting to WARNING for anything unrecognized.
func levelFromName(name string) trace.Level {
	switch name {
	case "SEVERE":
		return trace.SEVERE
	case "WARNING":
		return trace.WARNING
	case "CLASS":
		return trace.CLASS
	case "INFO":
		return trace.INFO
	case "FINE":
		return trace.FINE
	case "FINEST":
		return trace.FINEST
	case "TRACE_INST":
		return trace.TRACE_INST
	default:
		return trace.WARNING
	}
}

func init() {
	rootCmd.Flags().IntVar(&heapSize, "heap-size", 65536, "heap size, in slots")
	rootCmd.Flags().StringArrayVar(&jdkPath, "jdk-path", nil, "class search path root (repeatable)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "WARNING", "trace threshold: SEVERE, WARNING, CLASS, INFO, FINE, FINEST, TRACE_INST")
	rootCmd.Flags().BoolVar(&printInRealTime, "print-in-real-time", false, "flush thread println output immediately instead of buffering to thread termination")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
