package server

import (
	"fmt"
	"sort"
	"strings"
)

// ProductType is a component kind as reported in the producttypecsv field of
// GetVersion
type ProductType string

const (
	AnswerServer         ProductType = "ANSWERSERVER"
	Content              ProductType = "AXE"
	IndexTasks           ProductType = "CAP"
	Category             ProductType = "CLASSSERVER"
	DAH                  ProductType = "DAH"
	DIH                  ProductType = "DIH"
	DistributedConnector ProductType = "DISTRIBUTED_CONNECTOR"
	IDOLProxy            ProductType = "IDOLPROXY"
	QMS                  ProductType = "QMS"
	Coordinator          ProductType = "SERVICECOORDINATOR"
	Stats                ProductType = "STATS"
	Community            ProductType = "UASERVER"
	View                 ProductType = "VIEW"
)

var friendlyNames = map[ProductType]string{
	AnswerServer:         "Answer Server",
	Content:              "Content",
	IndexTasks:           "IndexTasks",
	Category:             "Category",
	DAH:                  "DAH",
	DIH:                  "DIH",
	DistributedConnector: "Distributed Connector",
	IDOLProxy:            "IDOL Proxy",
	QMS:                  "Query Manipulation Service",
	Coordinator:          "Coordinator",
	Stats:                "Stats Server",
	Community:            "Community",
	View:                 "View",
}

// FriendlyName returns the name shown to operators, or the tag itself for
// unknown types
func (p ProductType) FriendlyName() string {
	if name, ok := friendlyNames[p]; ok {
		return name
	}
	return string(p)
}

func (p ProductType) String() string {
	return string(p)
}

// Known reports whether p is one of the defined product types
func (p ProductType) Known() bool {
	_, ok := friendlyNames[p]
	return ok
}

// ParseProductType parses a product type tag, ignoring case
func ParseProductType(s string) (ProductType, error) {
	p := ProductType(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Known() {
		return "", fmt.Errorf("unknown product type %q", s)
	}
	return p, nil
}

// AllProductTypes returns every known product type in tag order
func AllProductTypes() []ProductType {
	all := make([]ProductType, 0, len(friendlyNames))
	for p := range friendlyNames {
		all = append(all, p)
	}
	sort.Slice(all, func(i, j int) bool { return all[i] < all[j] })
	return all
}
