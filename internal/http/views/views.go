package views

import "embed"

// Content holds the page layouts and templates.
//
//go:embed layouts/* templates/*
var Content embed.FS
