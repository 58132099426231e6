package config

import (
	"flag"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/srediag/mumblelink/pkg/mumble"
)

type ConfigTestSuite struct {
	suite.Suite
}

func (s *ConfigTestSuite) parse(args ...string) (Config, error) {
	fs := flag.NewFlagSet("mumblelink", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return ParseConfig(fs, args)
}

func (s *ConfigTestSuite) TestDefaults() {
	cfg, err := s.parse()
	s.Require().NoError(err)
	s.Equal(DefaultConfig(), cfg)
	s.Require().NoError(Verify(cfg))
}

func (s *ConfigTestSuite) TestEnv() {
	s.T().Setenv("MUMBLELINK_NAMES", "MumbleLink,MumbleLink2")
	s.T().Setenv("MUMBLELINK_INTERVAL", "250ms")
	s.T().Setenv("MUMBLELINK_WORKERS", "2")
	s.T().Setenv("MUMBLELINK_PRINT", "true")

	cfg, err := s.parse()
	s.Require().NoError(err)
	s.Equal([]string{"MumbleLink", "MumbleLink2"}, cfg.Names)
	s.Equal(250*time.Millisecond, cfg.Interval)
	s.Equal(2, cfg.Workers)
	s.True(cfg.Print)
}

func (s *ConfigTestSuite) TestFlagsOverrideEnv() {
	s.T().Setenv("MUMBLELINK_NAMES", "FromEnv")
	s.T().Setenv("MUMBLELINK_HTTP_ADDR", ":1")

	cfg, err := s.parse("-mumble", "A", "-mumble", "B", "-http", "", "-interval", "1s")
	s.Require().NoError(err)
	s.Equal([]string{"A", "B"}, cfg.Names)
	s.Equal("", cfg.HTTPAddr)
	s.Equal(time.Second, cfg.Interval)
}

func (s *ConfigTestSuite) TestBadEnv() {
	s.T().Setenv("MUMBLELINK_INTERVAL", "soon")
	_, err := s.parse()
	s.Require().Error(err)
}

func (s *ConfigTestSuite) TestVerifyConfig() {
	cfg := DefaultConfig()
	cfg.Names = nil
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.Names = []string{mumble.DefaultName, mumble.DefaultName}
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.Names = []string{""}
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.Interval = 0
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.StaleAfter = cfg.Interval / 2
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.Workers = 0
	s.Require().Error(Verify(cfg))
	cfg.Workers = maxWorkers + 1
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.OpenRetries = 0
	s.Require().Error(Verify(cfg))

	cfg = DefaultConfig()
	cfg.Names = []string{mumble.DisabledName}
	s.Require().NoError(Verify(cfg))

	cfg = Config{Dump: "/dev/shm/MumbleLink"}
	s.Require().NoError(Verify(cfg))
}

func TestConfigTestSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}
