// Package music defines the track and album model shared by the year
// resolution engine. Tracks are a read/write view over the host music
// application's library; the engine mutates year fields in place and never
// creates or destroys tracks.
package music
