// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package io

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

// spidev ioctl requests, from linux/spi/spidev.h.
const (
	spiIOCMessage1      = 0x40206b00
	spiIOCWrMode        = 0x40016b01
	spiIOCWrLSBFirst    = 0x40016b02
	spiIOCWrBitsPerWord = 0x40016b03
	spiIOCWrMaxSpeedHz  = 0x40046b04
)

// spiTransfer is struct spi_ioc_transfer.
type spiTransfer struct {
	txBuf          uint64
	rxBuf          uint64
	length         uint32
	speedHz        uint32
	delayUsecs     uint16
	bitsPerWord    uint8
	csChange       uint8
	txNbits        uint8
	rxNbits        uint8
	wordDelayUsecs uint8
	pad            uint8
}

// SPI is a Linux spidev SPI bus.
// The counter's chip select is expected to be wired to a separate
// GPIO, since the kernel releases its own chip select after every byte.
type SPI struct {
	name  string
	f     *os.File
	speed uint32
	tx    [1]byte
	rx    [1]byte
}

// OpenSPI opens a spidev device e.g /dev/spidev0.0
func OpenSPI(name string) (*SPI, error) {
	if err := access(name); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(name, os.O_RDWR, 0600)
	if err != nil {
		return nil, err
	}
	s := new(SPI)
	s.name = name
	s.f = f
	return s, nil
}

// Close closes the SPI device.
func (s *SPI) Close() error {
	return s.f.Close()
}

// Configure sets the clock rate, SPI mode (0-3) and bit order.
func (s *SPI) Configure(speedHz, mode int, lsbFirst bool) error {
	if mode < 0 || mode > 3 {
		return fmt.Errorf("%s: invalid SPI mode %d", s.name, mode)
	}
	if speedHz <= 0 {
		return fmt.Errorf("%s: invalid speed %d", s.name, speedHz)
	}
	m := uint8(mode)
	if err := s.ioctl(spiIOCWrMode, unsafe.Pointer(&m)); err != nil {
		return fmt.Errorf("%s: mode: %v", s.name, err)
	}
	var lsb uint8
	if lsbFirst {
		lsb = 1
	}
	if err := s.ioctl(spiIOCWrLSBFirst, unsafe.Pointer(&lsb)); err != nil {
		return fmt.Errorf("%s: bit order: %v", s.name, err)
	}
	bits := uint8(8)
	if err := s.ioctl(spiIOCWrBitsPerWord, unsafe.Pointer(&bits)); err != nil {
		return fmt.Errorf("%s: bits per word: %v", s.name, err)
	}
	speed := uint32(speedHz)
	if err := s.ioctl(spiIOCWrMaxSpeedHz, unsafe.Pointer(&speed)); err != nil {
		return fmt.Errorf("%s: speed: %v", s.name, err)
	}
	s.speed = speed
	return nil
}

// Exchange sends one byte and returns the byte clocked in at the same time.
func (s *SPI) Exchange(b byte) (byte, error) {
	s.tx[0] = b
	s.rx[0] = 0
	xfer := spiTransfer{
		txBuf:       uint64(uintptr(unsafe.Pointer(&s.tx[0]))),
		rxBuf:       uint64(uintptr(unsafe.Pointer(&s.rx[0]))),
		length:      1,
		speedHz:     s.speed,
		bitsPerWord: 8,
	}
	if err := s.ioctl(spiIOCMessage1, unsafe.Pointer(&xfer)); err != nil {
		return 0, fmt.Errorf("%s: transfer: %v", s.name, err)
	}
	return s.rx[0], nil
}

func (s *SPI) ioctl(req uintptr, arg unsafe.Pointer) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, s.f.Fd(), req, uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}
