// Package pool provides pooled scratch slices for the decoder.
//
// Entropy decoding rebuilds large lookup tables for every coded section;
// pooling them keeps steady-state decoding allocation-free.
package pool
