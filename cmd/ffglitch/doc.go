// Command ffglitch round-trips codec metadata through a transform.
//
// The root command runs one pipeline pass:
//
//	ffglitch -i clip.mpg -f mv -s mv-sink-and-rise -o glitched.mpg
//
// Subcommands inspect the feature catalogue, built-in transforms, sidecar
// documents, the run journal, the configuration, and the local toolchain.
package main
