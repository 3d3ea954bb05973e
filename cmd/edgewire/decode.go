package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danmuck/edgewire/internal/protocol/framer"
	"github.com/danmuck/edgewire/internal/protocol/messages"
)

func newDecodeCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Split captured bytes into frames and decode them",
		Example: `  edgewire decode 4142 14000000 5dd0 d1ef6e6540ef5a0777be8f3f7b1416c0c3f54840
  edgewire decode --file capture.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var raw []byte
			var err error
			switch {
			case file != "" && len(args) > 0:
				return fmt.Errorf("pass either --file or hex arguments, not both")
			case file != "":
				raw, err = os.ReadFile(file)
			default:
				raw, err = parseHex(args)
			}
			if err != nil {
				return err
			}
			return a.decode(cmd.OutOrStdout(), raw)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "binary capture to decode")
	return cmd
}

func parseHex(args []string) ([]byte, error) {
	s := strings.Join(args, "")
	s = strings.NewReplacer("0x", "", "0X", "", ",", "", " ", "", ":", "").Replace(s)
	if s == "" {
		return nil, fmt.Errorf("no bytes to decode")
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("parse hex: %w", err)
	}
	return b, nil
}

func (a *app) decode(out io.Writer, raw []byte) error {
	buf := framer.NewBuffer(a.cfg.Session.Limits)
	_, _ = buf.Write(raw)

	var ok, failed int
	for {
		res, more := buf.Next()
		if !more {
			break
		}
		h := res.Header
		if res.Status == framer.Failed {
			failed++
			fmt.Fprintf(out, "%s\tdropped %d bytes: %v\n", h.Tag, res.Consumed, res.Err)
			continue
		}
		ok++
		m, known, err := messages.DecodePayload(h.Tag, res.Payload)
		switch {
		case err != nil:
			fmt.Fprintf(out, "%s\tlen=%d crc=0x%04x\tdecode error: %v\n", h.Tag, h.Length, h.Checksum, err)
		case !known:
			fmt.Fprintf(out, "%s\tlen=%d crc=0x%04x\t%x\n", h.Tag, h.Length, h.Checksum, res.Payload)
		default:
			fmt.Fprintf(out, "%s\tlen=%d crc=0x%04x\t%+v\n", h.Tag, h.Length, h.Checksum, m)
		}
	}
	if pending := buf.Len(); pending > 0 {
		fmt.Fprintf(out, "incomplete: %d trailing bytes\n", pending)
	}
	fmt.Fprintf(out, "frames: %d ok, %d dropped\n", ok, failed)
	return nil
}
