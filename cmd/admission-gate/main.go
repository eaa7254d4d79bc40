package main

import "github.com/Admission-Gate/Admissiongate/cmd/admission-gate/cmd"

func main() {
	cmd.Execute()
}
