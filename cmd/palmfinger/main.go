// Command palmfinger runs the palm and finger capture service.
package main

import "github.com/Vidhwanhd/Palm-Finger-Biometric-Detection/internal/cli"

func main() {
	cli.Execute()
}
