// cybercraft-launcher/game/java_windows.go
package game

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/sys/windows/registry"
)

var javaRegistryPaths = []string{
	`SOFTWARE\JavaSoft\JDK`,
	`SOFTWARE\JavaSoft\Java Runtime Environment`,
	`SOFTWARE\Wow6432Node\JavaSoft\Java Runtime Environment`,
}

// javaEnv points the bootstrapper at the registered Java runtime when the
// user has not set JAVA_HOME.
func javaEnv(logger *zap.Logger) []string {
	if os.Getenv("JAVA_HOME") != "" {
		return nil
	}
	for _, path := range javaRegistryPaths {
		home, err := javaHomeFromRegistry(path)
		if err != nil {
			logger.Debug("java registry lookup", zap.String("key", path), zap.Error(err))
			continue
		}
		logger.Info("using registered Java runtime", zap.String("javaHome", home))
		return []string{"JAVA_HOME=" + home}
	}
	return nil
}

func javaHomeFromRegistry(path string) (string, error) {
	key, err := registry.OpenKey(registry.LOCAL_MACHINE, path, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("could not open registry key: %w", err)
	}
	defer key.Close()

	current, _, err := key.GetStringValue("CurrentVersion")
	if err != nil {
		return "", fmt.Errorf("could not read 'CurrentVersion': %w", err)
	}

	versionKey, err := registry.OpenKey(registry.LOCAL_MACHINE, path+`\`+current, registry.QUERY_VALUE)
	if err != nil {
		return "", fmt.Errorf("could not open version key %s: %w", current, err)
	}
	defer versionKey.Close()

	home, _, err := versionKey.GetStringValue("JavaHome")
	if err != nil {
		return "", fmt.Errorf("could not read 'JavaHome': %w", err)
	}
	if home == "" {
		return "", fmt.Errorf("'JavaHome' value is empty")
	}
	return home, nil
}
