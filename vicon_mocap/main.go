// Command vicon_mocap publishes the pose and quality score of one Vicon
// segment to ROS.
//
// Flags must precede ROS arguments:
//
//	vicon_mocap --host 10.0.0.2:801 _subject:=quad __name:=mocap
package main

import (
	"fmt"
	"os"

	modular "github.com/edwinhayes/logrus-modular"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/edwinhayes/vicon_mocap/mocap"
	"github.com/edwinhayes/vicon_mocap/msgs/geometry_msgs"
	"github.com/edwinhayes/vicon_mocap/msgs/vicon_mocap_package"
	"github.com/edwinhayes/vicon_mocap/ros"
	"github.com/edwinhayes/vicon_mocap/vicon"
	"github.com/edwinhayes/vicon_mocap/vicon/datastream"
	"github.com/edwinhayes/vicon_mocap/vicon/udpstream"
)

const (
	nodeName  = "/vicon_mocap"
	logModule = "vicon_mocap"

	flagConfig   = "config"
	flagSource   = "source"
	flagHost     = "host"
	flagLogLevel = "log-level"
)

func newApp() *cli.App {
	return &cli.App{
		Name:      "vicon_mocap",
		Usage:     "publish Vicon segment poses to ROS",
		ArgsUsage: "[ROS arguments]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "load configuration from JSON `FILE`",
			},
			&cli.StringFlag{
				Name:  flagSource,
				Usage: "client to read frames with: datastream or udpstream",
			},
			&cli.StringFlag{
				Name:  flagHost,
				Usage: "Vicon server `HOST:PORT`, or the local address to listen on for udpstream",
			},
			&cli.StringFlag{
				Name:  flagLogLevel,
				Usage: "log level, optionally per module: info,udpstream=debug,topic/mocap/posestamped=warn",
			},
		},
		Action: run,
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(c *cli.Context, cfg *mocap.Config) {
	if c.IsSet(flagSource) {
		cfg.Source = c.String(flagSource)
	}
	if c.IsSet(flagHost) {
		cfg.Host = c.String(flagHost)
	}
	if c.IsSet(flagLogLevel) {
		cfg.LogLevel = c.String(flagLogLevel)
	}
}

// checkArgs rejects arguments that are neither flags nor ROS arguments.
func checkArgs(node interface{ NonRosArgs() []string }) error {
	if rest := node.NonRosArgs(); len(rest) > 0 {
		return errors.Errorf("unexpected arguments %q", rest)
	}
	return nil
}

func newClient(cfg mocap.Config, logger modular.ModuleLogger) (vicon.Client, error) {
	switch cfg.Source {
	case mocap.SourceUDPStream:
		return udpstream.New(cfg.ReadTimeout, logger), nil
	case mocap.SourceDataStream:
		return datastream.New(logger)
	}
	return nil, errors.Errorf("unknown source %q", cfg.Source)
}

func run(c *cli.Context) error {
	cfg := mocap.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		if err := mocap.LoadFile(path, &cfg); err != nil {
			return err
		}
	}

	node, err := ros.NewNode(nodeName, c.Args().Slice())
	if err != nil {
		return errors.Wrap(err, "create node")
	}
	defer node.Shutdown()
	if err := checkArgs(node); err != nil {
		return err
	}

	if err := mocap.ApplyParams(node, &cfg); err != nil {
		return err
	}
	applyFlags(c, &cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	root := node.Logger().GetRoot()
	if err := ros.SetLogLevel(root, cfg.LogLevel); err != nil {
		return err
	}
	logger := ros.ChildLogger(root, logModule)

	client, err := newClient(cfg, root)
	if err != nil {
		return err
	}
	opts := ros.PublisherOptions{QueueSize: cfg.QueueSize}
	pose, err := node.NewPublisherWithOptions(cfg.PoseTopic, geometry_msgs.MsgPoseStamped, opts)
	if err != nil {
		return errors.Wrapf(err, "advertise %s", cfg.PoseTopic)
	}
	quality, err := node.NewPublisherWithOptions(cfg.QualityTopic, vicon_mocap_package.MsgQualityMsg, opts)
	if err != nil {
		return errors.Wrapf(err, "advertise %s", cfg.QualityTopic)
	}

	bridge, err := mocap.NewBridge(client, cfg, pose, quality, root)
	if err != nil {
		return err
	}
	logger.WithFields(logrus.Fields{
		"pose":    cfg.PoseTopic,
		"quality": cfg.QualityTopic,
	}).Info("advertised")
	return serve(bridge, node.OK, logger)
}

// serve connects bridge and runs it while ok holds. A failed connection is
// logged and ends serve without an error.
func serve(bridge *mocap.Bridge, ok func() bool, logger modular.Logger) error {
	if err := bridge.Connect(); err != nil {
		logger.WithError(err).Error("failed to connect to the Vicon server")
		return nil
	}
	defer func() {
		if err := bridge.Close(); err != nil {
			logger.WithError(err).Warn("disconnect failed")
		}
	}()

	logger.Info("streaming")
	if err := bridge.Run(ok); err != nil {
		return errors.Wrap(err, "lost connection")
	}
	logger.Info("shutting down")
	return nil
}
