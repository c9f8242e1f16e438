//go:build !windows

// cybercraft-launcher/game/java_other.go
package game

import "go.uber.org/zap"

// javaEnv adds nothing outside Windows; the bootstrapper finds Java on PATH
// or through JAVA_HOME.
func javaEnv(*zap.Logger) []string { return nil }
