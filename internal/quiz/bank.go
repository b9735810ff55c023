package quiz

import "cyberguard/internal/models"

var builtinBank = map[string][]models.QuizQuestion{
	"network_security": {
		{
			Question: "What does a firewall primarily do?",
			Answer:   "Filters incoming and outgoing network traffic",
			Options:  []string{"Filters incoming and outgoing network traffic", "Encrypts files on disk", "Scans email attachments for spam", "Backs up network configurations"},
		},
		{
			Question: "Which protocol secures web traffic between a browser and a server?",
			Answer:   "HTTPS",
			Options:  []string{"HTTPS", "FTP", "Telnet", "SNMP"},
		},
		{
			Question: "What is a man-in-the-middle attack?",
			Answer:   "An attacker secretly relays and possibly alters traffic between two parties",
			Options:  []string{"An attacker secretly relays and possibly alters traffic between two parties", "A virus that spreads over LAN cables", "Flooding a server with requests", "Guessing passwords by brute force"},
		},
		{
			Question: "What is the purpose of network segmentation?",
			Answer:   "Limiting how far an intruder can move inside a network",
			Options:  []string{"Limiting how far an intruder can move inside a network", "Increasing Wi-Fi signal strength", "Compressing packets for faster transfer", "Assigning public IPs to every host"},
		},
	},
	"cryptography": {
		{
			Question: "What distinguishes symmetric from asymmetric encryption?",
			Answer:   "Symmetric uses one shared key; asymmetric uses a public/private key pair",
			Options:  []string{"Symmetric uses one shared key; asymmetric uses a public/private key pair", "Symmetric is always weaker", "Asymmetric cannot encrypt data", "They differ only in key length"},
		},
		{
			Question: "What is a cryptographic hash function designed to be?",
			Answer:   "One-way and collision resistant",
			Options:  []string{"One-way and collision resistant", "Reversible with the right key", "Faster than any cipher", "Unique per operating system"},
		},
		{
			Question: "Why are passwords stored with a salt?",
			Answer:   "To make precomputed rainbow-table attacks impractical",
			Options:  []string{"To make precomputed rainbow-table attacks impractical", "To make passwords longer", "To speed up login checks", "To comply with Unicode"},
		},
	},
	"malware": {
		{
			Question: "What is ransomware?",
			Answer:   "Malware that encrypts data and demands payment for the key",
			Options:  []string{"Malware that encrypts data and demands payment for the key", "Software that shows unwanted ads", "A tool for cracking passwords", "A fake antivirus scanner"},
		},
		{
			Question: "How does a worm differ from a virus?",
			Answer:   "A worm self-propagates without a host file",
			Options:  []string{"A worm self-propagates without a host file", "A worm only infects servers", "A virus spreads faster", "There is no difference"},
		},
		{
			Question: "What is a botnet?",
			Answer:   "A network of compromised machines controlled by an attacker",
			Options:  []string{"A network of compromised machines controlled by an attacker", "A cluster of honeypots", "A peer-to-peer file sharing tool", "A type of firewall"},
		},
	},
	"web_security": {
		{
			Question: "What does SQL injection exploit?",
			Answer:   "Unsanitized user input concatenated into database queries",
			Options:  []string{"Unsanitized user input concatenated into database queries", "Weak TLS ciphers", "Open network ports", "Misconfigured DNS records"},
		},
		{
			Question: "What is cross-site scripting (XSS)?",
			Answer:   "Injecting malicious scripts into pages viewed by other users",
			Options:  []string{"Injecting malicious scripts into pages viewed by other users", "Stealing cookies over Wi-Fi", "Attacking the web server's OS", "Redirecting DNS queries"},
		},
		{
			Question: "What does the HttpOnly cookie flag prevent?",
			Answer:   "JavaScript access to the cookie",
			Options:  []string{"JavaScript access to the cookie", "Cookie transmission over HTTP", "Cookie expiry", "Cross-origin requests"},
		},
	},
	"cloud_security": {
		{
			Question: "What is the shared responsibility model?",
			Answer:   "The provider secures the infrastructure; the customer secures their data and configuration",
			Options:  []string{"The provider secures the infrastructure; the customer secures their data and configuration", "Both parties share one admin account", "Security duties rotate monthly", "The customer secures everything"},
		},
		{
			Question: "What is a common cause of cloud storage data leaks?",
			Answer:   "Buckets left publicly readable by misconfiguration",
			Options:  []string{"Buckets left publicly readable by misconfiguration", "Weak physical data center security", "Outdated hard drives", "Slow network links"},
		},
		{
			Question: "What does IAM control in a cloud environment?",
			Answer:   "Which identities can perform which actions on which resources",
			Options:  []string{"Which identities can perform which actions on which resources", "Instance memory allocation", "Inter-region replication", "Invoice and billing alerts"},
		},
	},
	"forensics": {
		{
			Question: "What is the chain of custody in digital forensics?",
			Answer:   "A documented record of who handled evidence and when",
			Options:  []string{"A documented record of who handled evidence and when", "The order files were deleted", "A list of suspect devices", "The sequence of network hops"},
		},
		{
			Question: "Why are disk images taken before analysis?",
			Answer:   "To preserve the original evidence unmodified",
			Options:  []string{"To preserve the original evidence unmodified", "To compress the data", "To speed up scanning", "To remove malware first"},
		},
		{
			Question: "What can file metadata reveal in an investigation?",
			Answer:   "Creation, modification, and access timestamps",
			Options:  []string{"Creation, modification, and access timestamps", "The file's encryption key", "The author's password", "Network routing tables"},
		},
	},
}
