package interactive

import (
	"context"
	"fmt"
	"strings"

	"github.com/capture-protocol/capture-go/pkg/config"
	"github.com/capture-protocol/capture-go/pkg/model"
	"github.com/capture-protocol/capture-go/pkg/wire"
)

// device resolves args[0], printing usage when it is missing.
func (c *Console) device(args []string, usage string) (*model.Device, bool) {
	if len(args) < 1 {
		fmt.Fprintln(c.out, "Usage: "+usage)
		return nil, false
	}
	d, err := resolveDevice(c.sess.Devices(), args[0])
	if err != nil {
		fmt.Fprintln(c.out, err)
		fmt.Fprintln(c.out, "  Use 'devices' to list scanners")
		return nil, false
	}
	return d, true
}

// queued reports the immediate outcome of posting a request.
func (c *Console) queued(err error) {
	if err != nil {
		fmt.Fprintf(c.out, "Request failed: %v\n", err)
	}
}

// done returns a completion callback that prints what.
func (c *Console) done(what string) func(error) {
	return func(err error) {
		if err != nil {
			fmt.Fprintf(c.out, "%s failed: %v\n", what, err)
			return
		}
		fmt.Fprintf(c.out, "%s: OK\n", what)
	}
}

func (c *Console) cmdDevices() {
	devices := c.sess.Devices()
	if len(devices) == 0 {
		fmt.Fprintln(c.out, "No scanners")
		return
	}

	fmt.Fprintf(c.out, "\nScanners (%d):\n", len(devices))
	fmt.Fprintln(c.out, "-------------------------------------------")
	n := 0
	for _, d := range devices {
		info := d.Snapshot()
		if info.Placeholder {
			fmt.Fprintf(c.out, "  -  %s\n", info.Name)
			continue
		}
		n++
		fmt.Fprintf(c.out, "  %d. %s\n", n, info.Name)
		fmt.Fprintf(c.out, "      Identity: %s\n", info.Identity)
		fmt.Fprintf(c.out, "      Type:     0x%08x\n", info.DeviceType)
		if info.Address != "" {
			fmt.Fprintf(c.out, "      Address:  %s\n", info.Address)
		}
		if info.Version != "" {
			fmt.Fprintf(c.out, "      Firmware: %s\n", info.Version)
		}
		if info.BatteryLevel >= 0 {
			fmt.Fprintf(c.out, "      Battery:  %d%%\n", info.BatteryLevel)
		}
		fmt.Fprintf(c.out, "      Action:   %s (local ack: %t)\n", info.DecodeAction, info.LocalAck)
	}
	fmt.Fprintln(c.out)
}

func (c *Console) cmdStatus() {
	fmt.Fprintln(c.out, "\nSession Status")
	fmt.Fprintln(c.out, "-------------------------------------------")
	fmt.Fprintf(c.out, "  Session ID:   %s\n", c.sess.ID())
	fmt.Fprintf(c.out, "  State:        %s\n", c.sess.State())
	fmt.Fprintf(c.out, "  Scanners:     %d\n", len(c.sess.Devices()))
	fmt.Fprintf(c.out, "  Queued:       %d\n", len(c.sess.Queue()))
	fmt.Fprintf(c.out, "  Auto confirm: %t\n", c.autoConfirm.Load())
	fmt.Fprintln(c.out)
}

func (c *Console) cmdQueue() {
	queued := c.sess.Queue()
	if len(queued) == 0 {
		fmt.Fprintln(c.out, "Queue empty")
		return
	}
	fmt.Fprintf(c.out, "%-8s %-4s %-28s %-8s %-10s %s\n", "TOKEN", "OP", "PROPERTY", "HANDLE", "STATUS", "RETRIES")
	for _, q := range queued {
		flags := ""
		if q.Abort {
			flags = " abort"
		}
		if q.Confirmation {
			flags += " confirmation"
		}
		fmt.Fprintf(c.out, "%-8d %-4s %-28s %-8d %-10s %d%s\n",
			q.Token, q.Op, q.Property, q.Handle, q.Status, q.Retries, flags)
	}
}

func (c *Console) cmdOpen(ctx context.Context) {
	if err := c.sess.Open(ctx); err != nil {
		fmt.Fprintf(c.out, "Open failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Opening...")
}

func (c *Console) cmdClose() {
	if err := c.sess.Close(); err != nil {
		fmt.Fprintf(c.out, "Close failed: %v\n", err)
		return
	}
	fmt.Fprintln(c.out, "Closing...")
}

func (c *Console) cmdInfo(args []string) {
	d, ok := c.device(args, "info <dev>")
	if !ok {
		return
	}
	c.queued(c.sess.GetFriendlyName(d, func(name string, err error) {
		if err == nil {
			fmt.Fprintf(c.out, "%s name: %s\n", d.Identity(), name)
		}
	}))
	c.queued(c.sess.GetDeviceType(d, func(t uint32, err error) {
		if err == nil {
			fmt.Fprintf(c.out, "%s type: 0x%08x\n", d.Identity(), t)
		}
	}))
	c.queued(c.sess.GetBluetoothAddress(d, func(addr []byte, err error) {
		if err == nil {
			fmt.Fprintf(c.out, "%s address: % x\n", d.Identity(), addr)
		}
	}))
	c.queued(c.sess.GetFirmwareVersion(d, func(v wire.Version, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "%s info failed: %v\n", d.Identity(), err)
			return
		}
		fmt.Fprintf(c.out, "%s firmware: %s\n", d.Identity(), v)
	}))
}

func (c *Console) cmdName(args []string) {
	d, ok := c.device(args, "name <dev> [new name]")
	if !ok {
		return
	}
	if len(args) > 1 {
		c.queued(c.sess.SetFriendlyName(d, strings.Join(args[1:], " "), c.done("name")))
		return
	}
	c.queued(c.sess.GetFriendlyName(d, func(name string, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "name failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "name = %s\n", name)
	}))
}

func (c *Console) cmdBattery(args []string) {
	d, ok := c.device(args, "battery <dev>")
	if !ok {
		return
	}
	c.queued(c.sess.GetBatteryLevel(d, func(level int, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "battery failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "battery = %d%%\n", level)
	}))
}

func (c *Console) cmdStand(args []string) {
	d, ok := c.device(args, "stand <dev> [mobile|stand|detect|auto]")
	if !ok {
		return
	}
	if len(args) > 1 {
		mode, err := parseStand(args[1])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.queued(c.sess.SetStandConfig(d, mode, c.done("stand")))
		return
	}
	c.queued(c.sess.GetStandConfig(d, func(mode wire.StandConfig, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "stand failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "stand = %s\n", mode)
	}))
}

func (c *Console) cmdAction(args []string) {
	d, ok := c.device(args, "action <dev> [none|beep|flash|rumble ...]")
	if !ok {
		return
	}
	if len(args) > 1 {
		action, err := parseDecodeAction(args[1:])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.queued(c.sess.SetDecodeAction(d, action, c.done("action")))
		return
	}
	c.queued(c.sess.GetDecodeAction(d, func(action wire.DecodeAction, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "action failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "action = %s\n", action)
	}))
}

func (c *Console) cmdAck(args []string) {
	d, ok := c.device(args, "ack <dev> [on|off]")
	if !ok {
		return
	}
	if len(args) > 1 {
		on, err := parseOnOff(args[1])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.queued(c.sess.SetLocalAcknowledgment(d, on, c.done("ack")))
		return
	}
	c.queued(c.sess.GetLocalAcknowledgment(d, func(on bool, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "ack failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "local ack = %t\n", on)
	}))
}

func (c *Console) cmdConfirm(args []string) {
	d, ok := c.device(args, "confirm <dev> [good|bad]")
	if !ok {
		return
	}
	var kind string
	if len(args) > 1 {
		kind = args[1]
	}
	conf, err := parseConfirmation(kind)
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	c.queued(c.sess.SetDataConfirmation(d, conf, c.done("confirm")))
}

func (c *Console) cmdAutoConfirm(args []string) {
	if len(args) > 0 {
		on, err := parseOnOff(args[0])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.autoConfirm.Store(on)
	}
	fmt.Fprintf(c.out, "auto confirm = %t\n", c.autoConfirm.Load())
}

func (c *Console) cmdMode(args []string) {
	if len(args) > 0 {
		mode, err := config.ParseConfirmationMode(args[0])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.sess.SetDataConfirmationMode(mode, c.done("mode"))
		return
	}
	c.sess.GetDataConfirmationMode(func(mode wire.DataConfirmationMode, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "mode failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "confirmation mode = %s\n", mode)
	})
}

func (c *Console) cmdSymbology(args []string) {
	d, ok := c.device(args, "symbology <dev> <id|name> [on|off]")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: symbology <dev> <id|name> [on|off]")
		return
	}
	id, err := parseSymbology(args[1])
	if err != nil {
		fmt.Fprintln(c.out, err)
		return
	}
	if len(args) > 2 {
		on, err := parseOnOff(args[2])
		if err != nil {
			fmt.Fprintln(c.out, err)
			return
		}
		c.queued(c.sess.SetSymbology(d, id, on, c.done(id.String())))
		return
	}
	c.queued(c.sess.GetSymbology(d, id, func(s wire.Symbology, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "symbology failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "%s = %s\n", s.ID, s.Status)
	}))
}

func (c *Console) cmdSymbologies(args []string) {
	d, ok := c.device(args, "symbologies <dev>")
	if !ok {
		return
	}
	c.queued(c.sess.GetAllSymbologies(d, func(err error) {
		if err != nil {
			fmt.Fprintf(c.out, "symbologies failed: %v\n", err)
			return
		}
		for _, s := range d.Symbologies() {
			fmt.Fprintf(c.out, "  %3d %-24s %s\n", s.ID, s.Name, s.Status)
		}
	}))
}

func (c *Console) cmdTimers(args []string) {
	d, ok := c.device(args, "timers <dev> [lock off-disc off-conn]")
	if !ok {
		return
	}
	if len(args) > 1 {
		mask, timers, err := parseTimers(args[1:])
		if err != nil {
			fmt.Fprintf(c.out, "%v (use '-' to leave a timer unchanged)\n", err)
			return
		}
		c.queued(c.sess.SetTimers(d, mask, timers, c.done("timers")))
		return
	}
	c.queued(c.sess.GetTimers(d, func(t wire.Timers, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "timers failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "trigger lock = %d, power off disconnected = %dmin, power off connected = %dmin\n",
			t.TriggerLock, t.PowerOffDisconnected, t.PowerOffConnected)
	}))
}

func (c *Console) cmdPostamble(args []string) {
	d, ok := c.device(args, "postamble <dev> [suffix]")
	if !ok {
		return
	}
	if len(args) > 1 {
		suffix := strings.NewReplacer(`\r`, "\r", `\n`, "\n", `\t`, "\t").Replace(strings.Join(args[1:], " "))
		c.queued(c.sess.SetPostamble(d, suffix, c.done("postamble")))
		return
	}
	c.queued(c.sess.GetPostamble(d, func(s string, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "postamble failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "postamble = %q\n", s)
	}))
}

func (c *Console) cmdDataStore(args []string) {
	d, ok := c.device(args, "datastore <dev> <index>")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: datastore <dev> <index>")
		return
	}
	var index uint16
	if _, err := fmt.Sscan(args[1], &index); err != nil {
		fmt.Fprintf(c.out, "Invalid index: %v\n", err)
		return
	}
	c.queued(c.sess.GetDataStore(d, index, func(ds wire.DataStore, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "datastore failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "datastore[%d] = % x\n", ds.Index, ds.Data)
	}))
}

func (c *Console) cmdSpecific(args []string) {
	d, ok := c.device(args, "specific <dev> <hex>")
	if !ok {
		return
	}
	if len(args) < 2 {
		fmt.Fprintln(c.out, "Usage: specific <dev> <hex>")
		return
	}
	payload, err := parseHex(args[1])
	if err != nil {
		fmt.Fprintf(c.out, "Invalid payload: %v\n", err)
		return
	}
	c.queued(c.sess.GetDeviceSpecific(d, payload, func(reply []byte, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "specific failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "reply = % x\n", reply)
	}))
}

func (c *Console) cmdVersion(args []string) {
	if len(args) > 0 {
		d, ok := c.device(args, "version [dev]")
		if !ok {
			return
		}
		c.queued(c.sess.GetFirmwareVersion(d, func(v wire.Version, err error) {
			if err != nil {
				fmt.Fprintf(c.out, "version failed: %v\n", err)
				return
			}
			fmt.Fprintf(c.out, "firmware = %s\n", v)
		}))
		return
	}
	c.sess.GetCaptureVersion(func(v wire.Version, err error) {
		if err != nil {
			fmt.Fprintf(c.out, "version failed: %v\n", err)
			return
		}
		fmt.Fprintf(c.out, "capture service = %s\n", v)
	})
}
