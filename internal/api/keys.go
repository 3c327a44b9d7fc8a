package api

import "fmt"

// Registry key shapes, per spec §3.
func clientsSetKey() string                  { return "clients" }
func clientKey(name string) string           { return fmt.Sprintf("client:%s", name) }
func clientSignatureKey(name string) string  { return fmt.Sprintf("client:%s:signature", name) }
func eventsHashKey(client string) string     { return fmt.Sprintf("events:%s", client) }
func resultKey(client, check string) string  { return fmt.Sprintf("result:%s:%s", client, check) }
func resultSetKey(client string) string      { return fmt.Sprintf("result:%s", client) }
func historyKey(client, check string) string { return fmt.Sprintf("history:%s:%s", client, check) }
func aggregatesSetKey() string               { return "aggregates" }
func aggregateMembersKey(name string) string { return fmt.Sprintf("aggregates:%s", name) }
func stashesSetKey() string                  { return "stashes" }
func stashKey(path string) string            { return fmt.Sprintf("stash:%s", path) }

// aggregateMember formats/parses the "<client>:<check>" encoding used by
// members of aggregates:<name>.
func aggregateMember(client, check string) string { return fmt.Sprintf("%s:%s", client, check) }

func splitAggregateMember(member string) (client, check string, ok bool) {
	for i := 0; i < len(member); i++ {
		if member[i] == ':' {
			return member[:i], member[i+1:], true
		}
	}
	return "", "", false
}
