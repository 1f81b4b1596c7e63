// Package clientcmd contains Cobra CLI commands for sesh.
package clientcmd
