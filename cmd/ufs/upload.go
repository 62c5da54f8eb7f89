package main

import (
	"errors"
	"io"
	"net"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourname/ufs/internal/logging"
	"github.com/yourname/ufs/pkg/uploadclient"
	"github.com/yourname/ufs/pkg/uploadproto"
)

type uploadOptions struct {
	ip       string
	port     uint16
	file     string
	task     string
	boundary string
}

func newUploadCmd(stdout, stderr io.Writer) *cobra.Command {
	var o uploadOptions

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload a file to a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log := logging.New(stderr)
			addr := net.JoinHostPort(o.ip, strconv.FormatUint(uint64(o.port), 10))

			c := uploadclient.New(
				uploadclient.WithBoundary(o.boundary),
				uploadclient.WithProgress(stdout),
			)
			err := c.Upload(cmd.Context(), addr, o.file, o.task)

			var se *uploadclient.StatusError
			if errors.As(err, &se) {
				log.WithFields(logrus.Fields{
					"addr":   addr,
					"status": se.Code,
					"body":   se.Body,
				}).Error("server rejected upload")
			}
			if err != nil {
				return err
			}

			log.WithFields(logrus.Fields{"addr": addr, "file": o.file}).Info("upload finished")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&o.ip, "ip-address", "i", "", "server IP address")
	f.Uint16VarP(&o.port, "port", "p", 0, "server port")
	f.StringVarP(&o.file, "file-path", "f", "", "local file to upload")
	f.StringVarP(&o.task, "task-id", "t", "", "store the file under this subdir on the server")
	f.StringVar(&o.boundary, "boundary", uploadproto.DefaultBoundary, "multipart boundary token")
	_ = cmd.MarkFlagRequired("ip-address")
	_ = cmd.MarkFlagRequired("port")
	_ = cmd.MarkFlagRequired("file-path")

	return cmd
}
