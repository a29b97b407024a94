package cache

import "github.com/sirupsen/logrus"

var log = logrus.WithField("prefix", "cache")
