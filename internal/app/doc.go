// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the compile lifecycle (discover the
// configuration files, load them, build each network and render a report),
// decoupled from any specific entrypoint like a CLI.
package app
