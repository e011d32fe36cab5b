package commands

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/allisson/playready-proxy/internal/playready/domain"
)

// DeviceLister lists configured devices.
type DeviceLister interface {
	List() []*domain.Device
}

// RunListDevices prints the devices the server would accept.
func RunListDevices(devices DeviceLister, w io.Writer, format string) error {
	list := devices.List()

	if format == "json" {
		if list == nil {
			list = []*domain.Device{}
		}
		return writeJSON(w, list)
	}

	if len(list) == 0 {
		_, err := fmt.Fprintln(w, "No devices configured")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "NAME\tPATH")
	for _, d := range list {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", d.Name, d.Path)
	}
	return tw.Flush()
}
