// Copyright (c) 2026 The Forgechain developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package accountdb

// accountsTableScheme creates the accounts table.
// Big integer columns persist as fixed-width decimal text, never floating
// point, so values round-trip exactly and ORDER BY compares exactly.
const accountsTableScheme = `
create table if not exists accounts (
	address text not null primary key,
	publicKey char(64) unique,
	secondPublicKey char(64),
	secondSignature integer not null default 0,
	u_secondSignature integer not null default 0,
	isDelegate integer not null default 0,
	u_isDelegate integer not null default 0,
	nameexist integer not null default 0,
	u_nameexist integer not null default 0,
	username text,
	u_username text,
	balance char(32) not null,
	u_balance char(32) not null,
	vote char(32) not null,
	rate integer not null default 0,
	fees char(32) not null,
	rewards char(32) not null,
	producedBlocks integer not null default 0,
	missedBlocks integer not null default 0,
	blockId text,
	delegates text,
	u_delegates text,
	multisignatures text,
	u_multisignatures text,
	multimin integer not null default 0,
	u_multimin integer not null default 0,
	multilifetime integer not null default 0,
	u_multilifetime integer not null default 0
);

CREATE UNIQUE INDEX if not exists accountsUsername on accounts(username) where username is not null and username != '';
CREATE INDEX if not exists accountsBalance on accounts(balance);
CREATE INDEX if not exists accountsDelegateVote on accounts(isDelegate, vote);
`

// chainMetaTableScheme holds node-wide bookkeeping written by the block
// processor, currently just the best height.
const chainMetaTableScheme = `
create table if not exists chain_meta (
	k text not null primary key,
	v text not null
);
`
