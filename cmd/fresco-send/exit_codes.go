package main

const (
	exitCodeSuccess  = 0
	exitCodeUsage    = 1
	exitCodeRejected = 2
	exitCodeNetwork  = 3
)
