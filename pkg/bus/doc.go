// Package bus implements the bambubus wire protocol.
package bus

// bambubus is communicated between the printer host and the BMCU-C
// filament unit over a shared half-duplex serial pair. The line is
// unshielded and unarbitrated, so every frame carries two checksums:
// a CRC8 over the header and a CRC16 over the whole frame. The framer
// recovers from noise by sliding the scan one byte past any candidate
// that fails validation instead of flushing the buffer.
//
// Producer: BMCU-C firmware
// Consumer: printer host driver
