// Package eventloop implements the supervisor's single cooperative
// dispatcher: a buffered channel standing in for the lock-free
// single-producer queue that ISRs would feed raw bytes into, plus a
// tick timer driving every component's periodic work. Nothing here
// blocks, and nothing spawns a goroutine per unit of work; callers run
// Loop.Run in one goroutine and everything downstream is a plain
// function call from it.
package eventloop
