package cmd

import (
	"fmt"
	"os"
)

func logAI(format string, a ...interface{}) {
	fmt.Fprintf(os.Stderr, "AI ▶ "+format+"\n", a...)
}

func debugAI(format string, a ...interface{}) {
	if !Verbose {
		return
	}
	fmt.Fprintf(os.Stderr, "[AI debug] "+format+"\n", a...)
}

func profileNameOrDefault(name string) string {
	if name == "" {
		return "(default)"
	}
	return name
}
